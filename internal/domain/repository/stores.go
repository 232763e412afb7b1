package repository

// Stores repositorios ligados a una misma unidad de trabajo (tx o almacén no transaccional).
type Stores struct {
	Documents  DocumentRepository
	Products   ProductRepository
	Parties    PartyRepository
	Movements  StockMovementRepository
	Entries    LedgerEntryRepository
	Operations OperationLogRepository
}
