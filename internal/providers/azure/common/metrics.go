package common

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
)

// MetricsAPI is the narrow slice of the azquery metrics client collectors
// depend on. Tests inject a fake; production code wraps *azquery.MetricsClient.
type MetricsAPI interface {
	QueryResource(ctx context.Context, resourceURI string, options *azquery.MetricsClientQueryResourceOptions) (azquery.MetricsClientQueryResourceResponse, error)
}

// MetricStats is an aggregated platform-metric series: the mean of the
// per-interval averages and the highest single interval.
type MetricStats struct {
	Avg float64
	Max float64
}

// effectiveDaysBack floors the lookback window at 1 day and defaults it
// to 30 when unset.
func effectiveDaysBack(daysBack int) int {
	if daysBack <= 0 {
		return 30
	}
	return daysBack
}

// FetchMetricStats queries one platform metric for resourceURI over the last
// daysBack days at 1-hour granularity and reduces the series to MetricStats.
//
// Failures and empty series return zero stats. Callers must treat Avg == 0
// as "data unavailable", never as "truly idle at 0%".
func FetchMetricStats(ctx context.Context, client MetricsAPI, resourceURI, metricName string, daysBack int) MetricStats {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -effectiveDaysBack(daysBack))

	resp, err := client.QueryResource(ctx, resourceURI, &azquery.MetricsClientQueryResourceOptions{
		MetricNames: to.Ptr(metricName),
		Timespan:    to.Ptr(azquery.NewTimeInterval(start, end)),
		Interval:    to.Ptr("PT1H"),
		Aggregation: to.SliceOfPtrs(azquery.AggregationTypeAverage),
	})
	if err != nil {
		return MetricStats{}
	}

	var (
		total float64
		count int
		max   float64
	)
	for _, metric := range resp.Value {
		if metric == nil {
			continue
		}
		for _, series := range metric.TimeSeries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				if point == nil || point.Average == nil {
					continue
				}
				v := *point.Average
				total += v
				count++
				if v > max {
					max = v
				}
			}
		}
	}
	if count == 0 {
		return MetricStats{}
	}
	return MetricStats{Avg: total / float64(count), Max: max}
}
