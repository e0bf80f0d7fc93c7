package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromRecorder implements Recorder backed by Prometheus counters/gauges.
type PromRecorder struct {
	registry            *prometheus.Registry
	handler             http.Handler
	clientsConnected    prometheus.Counter
	clientsDisconnected prometheus.Counter
	templatesIssued     prometheus.Counter
	tipChanges          prometheus.Counter
	messagesSent        *prometheus.CounterVec
	cacheSize           prometheus.Gauge
	pruneRuns           prometheus.Counter
	pruneRemoved        prometheus.Counter
	solutionsSubmitted  *prometheus.CounterVec
}

// NewPromRecorder creates a Prometheus-backed Recorder and exposes a handler
// for metrics scraping. Namespace is prefixed on all metrics; if empty,
// "sv2tpd" is used.
func NewPromRecorder(namespace string) (*PromRecorder, error) {
	if namespace == "" {
		namespace = "sv2tpd"
	}
	reg := prometheus.NewRegistry()

	clientsConnected := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "clients_connected_total", Help: "Total clients accepted by the connman."})
	clientsDisconnected := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "clients_disconnected_total", Help: "Total clients disconnected."})
	templatesIssued := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "templates_issued_total", Help: "Total NewTemplate messages sent to any client."})
	tipChanges := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "tip_changes_total", Help: "Total observed chain tip changes."})
	messagesSent := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "Messages sent by type."}, []string{"type"})
	cacheSize := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "template_cache_size", Help: "Current number of cached templates."})
	pruneRuns := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "cache_prune_runs_total", Help: "Total cache pruning passes."})
	pruneRemoved := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "cache_prune_removed_total", Help: "Total cache entries removed by pruning."})
	solutionsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "solutions_submitted_total", Help: "Solutions forwarded to the node, by result."}, []string{"status"})

	collectors := []prometheus.Collector{
		clientsConnected, clientsDisconnected, templatesIssued, tipChanges,
		messagesSent, cacheSize, pruneRuns, pruneRemoved, solutionsSubmitted,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PromRecorder{
		registry:            reg,
		handler:             promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		clientsConnected:    clientsConnected,
		clientsDisconnected: clientsDisconnected,
		templatesIssued:     templatesIssued,
		tipChanges:          tipChanges,
		messagesSent:        messagesSent,
		cacheSize:           cacheSize,
		pruneRuns:           pruneRuns,
		pruneRemoved:        pruneRemoved,
		solutionsSubmitted:  solutionsSubmitted,
	}, nil
}

// Handler exposes the HTTP handler for scraping.
func (p *PromRecorder) Handler() http.Handler { return p.handler }

func (p *PromRecorder) ClientConnected()    { p.clientsConnected.Inc() }
func (p *PromRecorder) ClientDisconnected() { p.clientsDisconnected.Inc() }
func (p *PromRecorder) TemplateIssued()     { p.templatesIssued.Inc() }
func (p *PromRecorder) TipChanged()         { p.tipChanges.Inc() }

func (p *PromRecorder) MessageSent(msgType uint8) {
	p.messagesSent.WithLabelValues(messageTypeName(msgType)).Inc()
}

func (p *PromRecorder) CacheSize(n int) { p.cacheSize.Set(float64(n)) }

func (p *PromRecorder) PruneRun(removed int) {
	p.pruneRuns.Inc()
	p.pruneRemoved.Add(float64(removed))
}

func (p *PromRecorder) SolutionSubmitted(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	p.solutionsSubmitted.WithLabelValues(status).Inc()
}

func messageTypeName(t uint8) string {
	switch t {
	case 0x70:
		return "coinbase_output_constraints"
	case 0x71:
		return "new_template"
	case 0x72:
		return "set_new_prev_hash"
	case 0x73:
		return "request_transaction_data"
	case 0x74:
		return "request_transaction_data_success"
	case 0x75:
		return "request_transaction_data_error"
	case 0x76:
		return "submit_solution"
	default:
		return "unknown"
	}
}
