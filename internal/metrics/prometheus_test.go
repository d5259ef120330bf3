package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGraded(t *testing.T) {
	hitsBefore := testutil.ToFloat64(PredictionsGraded.WithLabelValues("hit"))
	missesBefore := testutil.ToFloat64(PredictionsGraded.WithLabelValues("miss"))
	pointsBefore := testutil.ToFloat64(PointsAwarded)

	RecordGraded(33)
	RecordGraded(0)

	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(PredictionsGraded.WithLabelValues("hit")))
	assert.Equal(t, missesBefore+1, testutil.ToFloat64(PredictionsGraded.WithLabelValues("miss")))
	assert.Equal(t, pointsBefore+33, testutil.ToFloat64(PointsAwarded))
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(JobRunsTotal.WithLabelValues("score", "success"))

	RecordJob("score", "success", 1.5)

	assert.Equal(t, before+1, testutil.ToFloat64(JobRunsTotal.WithLabelValues("score", "success")))
	assert.NotZero(t, testutil.ToFloat64(LastSuccessfulJob.WithLabelValues("score")))
}

func TestRecordSynced(t *testing.T) {
	before := testutil.ToFloat64(EntitiesSynced.WithLabelValues("driver"))

	RecordSynced("driver", 20)

	assert.Equal(t, before+20, testutil.ToFloat64(EntitiesSynced.WithLabelValues("driver")))
}
