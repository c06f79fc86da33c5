package vintagestory

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type OrderBy string

const (
	OrderByAssetCreated   OrderBy = "asset-created"
	OrderByLastReleased   OrderBy = "last-released"
	OrderByDownloads      OrderBy = "downloads"
	OrderByFollows        OrderBy = "follows"
	OrderByComments       OrderBy = "comments"
	OrderByTrendingPoints OrderBy = "trending-points"
)

var orderByWire = map[OrderBy]string{
	OrderByAssetCreated:   "asset.created",
	OrderByLastReleased:   "lastreleased",
	OrderByDownloads:      "downloads",
	OrderByFollows:        "follows",
	OrderByComments:       "comments",
	OrderByTrendingPoints: "trendingpoints",
}

func OrderByValues() []OrderBy {
	return []OrderBy{OrderByAssetCreated, OrderByLastReleased, OrderByDownloads, OrderByFollows, OrderByComments, OrderByTrendingPoints}
}

func ParseOrderBy(value string) (OrderBy, error) {
	normalized := OrderBy(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := orderByWire[normalized]; ok {
		return normalized, nil
	}
	return "", fmt.Errorf("unknown order %q", value)
}

type OrderDirection string

const (
	OrderDesc OrderDirection = "desc"
	OrderAsc  OrderDirection = "asc"
)

func ParseOrderDirection(value string) (OrderDirection, error) {
	switch OrderDirection(strings.ToLower(strings.TrimSpace(value))) {
	case OrderDesc:
		return OrderDesc, nil
	case OrderAsc:
		return OrderAsc, nil
	}
	return "", fmt.Errorf("unknown order direction %q", value)
}

// Query describes a mod search. Unset fields are left out of the query string.
type Query struct {
	TagIDs         []int64
	GameVersion    *int64
	GameVersions   []int64
	Author         string
	Text           string
	OrderBy        OrderBy
	OrderDirection OrderDirection
}

func NewQuery() Query {
	return Query{}
}

func (q Query) WithTagIDs(ids ...int64) Query {
	q.TagIDs = append([]int64(nil), ids...)
	return q
}

func (q Query) WithGameVersion(tagID int64) Query {
	q.GameVersion = &tagID
	return q
}

func (q Query) WithGameVersions(tagIDs ...int64) Query {
	q.GameVersions = append([]int64(nil), tagIDs...)
	return q
}

func (q Query) WithAuthor(author string) Query {
	q.Author = author
	return q
}

func (q Query) WithText(text string) Query {
	q.Text = text
	return q
}

func (q Query) WithOrderBy(order OrderBy) Query {
	q.OrderBy = order
	return q
}

func (q Query) WithOrderDirection(direction OrderDirection) Query {
	q.OrderDirection = direction
	return q
}

// Build renders the query string in the fixed parameter order the repository documents.
func (q Query) Build() string {
	parts := make([]string, 0, len(q.TagIDs)+len(q.GameVersions)+5)
	add := func(key string, value string) {
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	for _, id := range q.TagIDs {
		add("tagids[]", strconv.FormatInt(id, 10))
	}
	if q.GameVersion != nil {
		add("gameversion", strconv.FormatInt(*q.GameVersion, 10))
	}
	for _, id := range q.GameVersions {
		add("gameversions[]", strconv.FormatInt(id, 10))
	}
	if q.Author != "" {
		add("author", q.Author)
	}
	if q.Text != "" {
		add("text", q.Text)
	}
	if wire, ok := orderByWire[q.OrderBy]; ok {
		add("orderby", wire)
	}
	if q.OrderDirection != "" {
		add("orderdirection", string(q.OrderDirection))
	}

	return strings.Join(parts, "&")
}
