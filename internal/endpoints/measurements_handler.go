package endpoints

import (
	"net/http"

	"go.uber.org/zap"

	"sched-reader/internal/sink"
	"sched-reader/internal/util"
)

type SnapshotReader interface {
	Snapshot() sink.Snapshot
}

type Health struct {
	RunID string `json:"run_id"`
	Ticks uint64 `json:"ticks"`
}

type Measurements struct {
	Response APIResponse
	logger   *util.SchedLogger
	latest   SnapshotReader
}

func (m *Measurements) Init(latest SnapshotReader, logger *util.SchedLogger) {
	m.latest = latest
	m.logger = logger
}

func (m *Measurements) GetLatestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		m.logger.Warn("method not allowed", zap.String("method", r.Method))
		m.Response.WriteErrorResponseWithStatusCode(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	snap := m.latest.Snapshot()
	if snap.Tick == nil {
		m.logger.Debug("latest requested before first reportable tick", zap.Uint64("ticks", snap.Ticks))
		m.Response.WriteErrorResponseWithStatusCode(w, ErrNoMeasurements, http.StatusNotFound)
		return
	}

	m.Response.WriteResultResponse(w, snap)
}

func (m *Measurements) HealthHandler(w http.ResponseWriter, r *http.Request) {
	snap := m.latest.Snapshot()
	m.Response.WriteResultResponse(w, Health{
		RunID: snap.RunID.String(),
		Ticks: snap.Ticks,
	})
}
