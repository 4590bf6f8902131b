package postgres

// Константы для лимитов запросов
const (
	// DefaultRecordLimit - лимит записей по умолчанию
	DefaultRecordLimit = 100000
	// MaxRecordLimit - максимальный лимит записей для одной вокселизации
	MaxRecordLimit = 1000000
)

// SRID4326 - WGS84 coordinate system
const SRID4326 = 4326

// recordsTable - таблица с записями наборов данных
const recordsTable = "voxel_records"
