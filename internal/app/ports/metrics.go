package ports

type PersistenceMetrics interface {
	RecordLoad(result string)
	RecordSave(result string)
	RecordDelete(ok bool)
}
