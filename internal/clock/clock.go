// Package clock pins every time computation to the store's civil zone.
// Timestamps are recorded and compared in America/Sao_Paulo; using the
// same zone for query windows keeps "today" consistent with ingestion.
package clock

import "time"

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		// No tzdata on the host; the embedded time/tzdata import in main
		// normally prevents this.
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}()

// Location returns the fixed civil zone of the event log.
func Location() *time.Location {
	return saoPaulo
}

// Now returns the current instant in the fixed zone.
func Now() time.Time {
	return time.Now().In(saoPaulo)
}
