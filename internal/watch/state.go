package watch

import (
	"fmt"
	"time"

	"github.com/monorkin/soleklart/internal/airquality"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Row is one labelled line of the data output.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Snapshot struct {
	State     State               `json:"-"`
	Rows      []Row               `json:"rows"`
	Reading   *airquality.Reading `json:"reading,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// HasData reports whether the snapshot carries a reading to show.
func (s Snapshot) HasData() bool {
	return s.State == StateFinished && len(s.Rows) > 0
}

// Rows renders a reading as the labelled lines shown to the user. A nil
// reading yields no rows.
func Rows(reading *airquality.Reading) []Row {
	if reading == nil {
		return []Row{}
	}

	rows := []Row{
		{Label: "Station", Value: reading.Station},
	}
	if reading.Area != "" {
		rows = append(rows, Row{Label: "Area", Value: reading.Area})
	}
	rows = append(rows,
		Row{Label: "Component", Value: reading.Component},
		Row{Label: "Value", Value: formatValue(reading.Value, reading.Unit)},
	)
	if !reading.Timestamp.IsZero() {
		rows = append(rows, Row{Label: "Measured", Value: reading.Timestamp.Local().Format("2006-01-02 15:04")})
	}
	if reading.Distance > 0 {
		rows = append(rows, Row{Label: "Distance", Value: fmt.Sprintf("%.1f km", reading.Distance/1000)})
	}

	return rows
}

func formatValue(value float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.1f", value)
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}
