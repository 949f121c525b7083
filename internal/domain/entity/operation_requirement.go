package entity

// OperationRequirement es la categorización de manejo/carrier que determina
// el empaque y etiquetado. Catálogo externo; se consume por id.
// PalletCapacity 0 significa "usar la capacidad por defecto configurada".
type OperationRequirement struct {
	ID             string
	Code           string
	Label          string
	PalletCapacity int
}
