package entity

import "time"

// SplitOrderPackageScan es un evento de escaneo aceptado. La constraint única
// (split_order_id, package_id) en la BD es el árbitro de concurrencia: un
// paquete se acepta a lo sumo una vez por split order.
type SplitOrderPackageScan struct {
	ID              string
	SplitOrderID    string
	PackageID       string
	TempPalletID    string
	SequenceInOrder int
	ScannedBy       string
	ScannedAt       time.Time
}
