package inmemory

import "sync"

type Snapshot struct {
	LoadTotal     uint64            `json:"load_total"`
	SaveTotal     uint64            `json:"save_total"`
	DeleteSuccess uint64            `json:"delete_success"`
	DeleteFailure uint64            `json:"delete_failure"`
	LoadsByResult map[string]uint64 `json:"loads_by_result"`
	SavesByResult map[string]uint64 `json:"saves_by_result"`
}

type Recorder struct {
	mu            sync.Mutex
	deleteOK      uint64
	deleteFailed  uint64
	loadsByResult map[string]uint64
	savesByResult map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		loadsByResult: map[string]uint64{},
		savesByResult: map[string]uint64{},
	}
}

func (r *Recorder) RecordLoad(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadsByResult[result]++
}

func (r *Recorder) RecordSave(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savesByResult[result]++
}

func (r *Recorder) RecordDelete(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.deleteOK++
		return
	}
	r.deleteFailed++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		DeleteSuccess: r.deleteOK,
		DeleteFailure: r.deleteFailed,
		LoadsByResult: make(map[string]uint64, len(r.loadsByResult)),
		SavesByResult: make(map[string]uint64, len(r.savesByResult)),
	}
	for k, v := range r.loadsByResult {
		out.LoadsByResult[k] = v
		out.LoadTotal += v
	}
	for k, v := range r.savesByResult {
		out.SavesByResult[k] = v
		out.SaveTotal += v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
