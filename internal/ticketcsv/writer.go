package ticketcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/palmyard/backend/internal/models"
)

var Header = []string{"No Tiket", "Tanggal", "Jam Masuk", "Jam Keluar", "No Polisi", "Lokasi", "Netto", "Janjang"}

// Write exports tickets with a header row. Fields containing the delimiter,
// a quote or a line break are quoted with embedded quotes doubled, so the
// output parses back to the same tickets.
func Write(w io.Writer, tickets []models.Ticket, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tickets {
		rec := []string{
			t.ID,
			t.Date,
			t.TimeIn,
			t.TimeOut,
			t.PlateNumber,
			t.Location,
			formatAmount(t.NetWeight),
			formatAmount(t.BunchCount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
