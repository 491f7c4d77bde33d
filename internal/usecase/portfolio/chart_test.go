package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

func TestRenderHistoryChart(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]*domain.HistoryPoint, 0, 6)
	for i := 0; i < 6; i++ {
		points = append(points, &domain.HistoryPoint{
			RecordedAt: base.AddDate(0, i, 0),
			TotalValue: decimal.NewFromInt(int64(25000 + i*1500)),
		})
	}

	png, err := RenderHistoryChart(points)
	require.NoError(t, err)
	require.NotEmpty(t, png)

	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderHistoryChart_TooFewPoints(t *testing.T) {
	_, err := RenderHistoryChart([]*domain.HistoryPoint{
		{RecordedAt: time.Now(), TotalValue: decimal.NewFromInt(100)},
	})
	assert.Error(t, err)
}
