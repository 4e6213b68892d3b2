// Package kafka carries dataset lifecycle events and the asynchronous
// ChEMBL fetch-job queue between the API server and the worker.
package kafka

// Topic names.
const (
	// TopicDatasetEvents receives lifecycle notifications: a dataset was
	// ingested or deleted.
	TopicDatasetEvents = "sarscope.dataset.events"

	// TopicFetchJobs queues ChEMBL fetch requests for the worker.
	TopicFetchJobs = "sarscope.fetch.jobs"
)

// Event types published to TopicDatasetEvents.
const (
	EventDatasetIngested = "dataset.ingested"
	EventDatasetDeleted  = "dataset.deleted"
)

// DatasetEvent is the payload of a dataset lifecycle event.
type DatasetEvent struct {
	DatasetID     string `json:"dataset_id"`
	Name          string `json:"name"`
	Source        string `json:"source"`
	CompoundCount int    `json:"compound_count"`
	RowsExcluded  int    `json:"rows_excluded"`
}

// FetchJob asks the worker to build a dataset from ChEMBL.
type FetchJob struct {
	JobID       string   `json:"job_id"`
	DatasetName string   `json:"dataset_name"`
	Targets     []string `json:"targets"` // target ChEMBL IDs
	RequestedBy string   `json:"requested_by,omitempty"`
}
