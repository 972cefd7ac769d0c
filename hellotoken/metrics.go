package hellotoken

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResultHost labels failures reported by the host or another program rather
// than by a check of this program.
const ResultHost = "host"

type Metrics struct {
	successfulInstructionCount *prometheus.CounterVec
	failedInstructionCount     *prometheus.CounterVec
	relayerFeeAmount           *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		successfulInstructionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hello_token_successful_instruction_count",
				Help: "Number of instructions that succeeded",
			},
			[]string{"instruction"},
		),
		failedInstructionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hello_token_failed_instruction_count",
				Help: "Number of instructions that were rejected",
			},
			[]string{"instruction", "code"},
		),
		relayerFeeAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hello_token_relayer_fee_amount",
				Help: "Base units paid to relayers",
			},
			[]string{"mint"},
		),
	}

	registerer.MustRegister(m.successfulInstructionCount)
	registerer.MustRegister(m.failedInstructionCount)
	registerer.MustRegister(m.relayerFeeAmount)

	return &m
}

func (m *Metrics) observe(instruction string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.successfulInstructionCount.WithLabelValues(instruction).Inc()
		return
	}
	code := string(CodeOf(err))
	if code == "" {
		code = ResultHost
	}
	m.failedInstructionCount.WithLabelValues(instruction, code).Inc()
}

func (m *Metrics) relayerFee(redemption *Redemption) {
	if m == nil || redemption.RelayerAmount == 0 {
		return
	}
	m.relayerFeeAmount.WithLabelValues(redemption.Mint.String()).Add(float64(redemption.RelayerAmount))
}
