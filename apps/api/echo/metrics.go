package echoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	progressWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mafunzo_progress_writes_total",
		Help: "Number of accepted progress reports.",
	})
	trainingCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mafunzo_training_completions_total",
		Help: "Number of progress reports that marked a training completed.",
	})
	ratingWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mafunzo_rating_writes_total",
		Help: "Number of accepted training ratings.",
	})
	validationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mafunzo_validation_rejections_total",
		Help: "Number of requests rejected by input validation.",
	})
)
