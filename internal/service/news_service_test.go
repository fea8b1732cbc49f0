package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/service"
)

func TestNewsFallsBackAndNeverFails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	primary := NewMockNewsSource(ctrl)
	primary.EXPECT().Name().Return("newsapi").AnyTimes()
	scrape := NewMockNewsSource(ctrl)
	scrape.EXPECT().Name().Return("etmarkets").AnyTimes()

	primary.EXPECT().News(gomock.Any(), "", 2).Return(nil, errors.New("rate limited"))
	scrape.EXPECT().News(gomock.Any(), "", 2).Return([]domain.NewsItem{{Title: "a"}, {Title: "b"}}, nil)

	svc := service.NewNewsService([]domain.NewsSource{primary, scrape}, 2, discardLogger())
	items := svc.Latest(t.Context(), "")
	assert.Len(t, items, 2)

	primary.EXPECT().News(gomock.Any(), "tcs", 2).Return(nil, errors.New("down"))
	scrape.EXPECT().News(gomock.Any(), "tcs", 2).Return(nil, errors.New("down"))
	items = svc.Latest(t.Context(), "tcs")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNewsFirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	empty := NewMockNewsSource(ctrl)
	empty.EXPECT().Name().Return("empty").AnyTimes()
	full := NewMockNewsSource(ctrl)
	full.EXPECT().Name().Return("full").AnyTimes()
	empty.EXPECT().News(gomock.Any(), gomock.Any(), gomock.Any()).Return([]domain.NewsItem{}, nil)
	full.EXPECT().News(gomock.Any(), gomock.Any(), gomock.Any()).Return([]domain.NewsItem{{Title: "x"}}, nil)

	svc := service.NewNewsService([]domain.NewsSource{empty, full}, 0, discardLogger())
	assert.Equal(t, "x", svc.Latest(t.Context(), "")[0].Title)
}
