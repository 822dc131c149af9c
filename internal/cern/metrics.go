package cern

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	resourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cernauth_resource_fetch_total",
		Help: "Resolved user resources by source.",
	}, []string{"source"})

	groupRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cernauth_group_refresh_total",
		Help: "Group snapshot refreshes by result.",
	}, []string{"result"})
)
