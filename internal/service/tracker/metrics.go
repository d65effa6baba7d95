package tracker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
)

// 사이클 결과 라벨
const (
	cycleResultOK      = "ok"
	cycleResultFailed  = "fetch_failed"
	cycleResultSkipped = "skipped"
)

// Metrics: 폴링 사이클 관련 Prometheus 지표
// nil 포인터로도 안전하게 호출할 수 있다.
type Metrics struct {
	cycles      *prometheus.CounterVec
	roleChanges *prometheus.CounterVec
	roles       prometheus.Gauge
	players     prometheus.Gauge
	fetch       prometheus.Histogram
}

// NewMetrics: 지표를 생성하여 reg에 등록한다.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_watch_cycles_total",
			Help: "Number of polling cycles by result.",
		}, []string{"result"}),
		roleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_watch_role_changes_total",
			Help: "Number of reported role changes by kind.",
		}, []string{"kind"}),
		roles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staff_watch_roles",
			Help: "Number of roles in the retained snapshot.",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staff_watch_players",
			Help: "Number of player entries in the retained snapshot.",
		}),
		fetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staff_watch_fetch_seconds",
			Help:    "Staff API fetch latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.roleChanges, m.roles, m.players, m.fetch} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetch.Observe(d.Seconds())
}

func (m *Metrics) cycle(result string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
}

func (m *Metrics) observeReport(report domain.DiffReport, snapshot domain.Snapshot) {
	if m == nil {
		return
	}
	for kind, n := range report.Counts() {
		if kind == domain.ChangeUnchanged {
			continue
		}
		m.roleChanges.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.roles.Set(float64(snapshot.Len()))
	m.players.Set(float64(snapshot.PlayerCount()))
}
