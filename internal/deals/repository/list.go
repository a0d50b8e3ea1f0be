package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ListParams struct {
	Status         *string
	Stage          *string
	Temperature    *string
	Search         string
	AgentID        *uuid.UUID
	CreatedAtFrom  *time.Time
	CreatedAtTo    *time.Time
	ValueCentsFrom *int64
	ValueCentsTo   *int64
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Deal, int, error) {
	whereClause, args, argIdx := buildDealListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM deals d WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM deals d
		WHERE %s
		ORDER BY %s %s, d.id
		LIMIT $%d OFFSET $%d
	`, prefixedDealColumns(), whereClause, mapDealSortColumn(params.SortBy), sortOrder, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	deals := make([]Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, deal)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return deals, total, nil
}

func buildDealListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"1 = 1"}
	args := []interface{}{}
	argIdx := 1

	addClause := func(format string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addClause("d.status = $%d", *params.Status)
	}
	if params.Stage != nil {
		addClause("d.stage = $%d", *params.Stage)
	}
	if params.Temperature != nil {
		addClause("d.temperature = $%d", *params.Temperature)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(d.title ILIKE $%d OR d.link_id ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if params.AgentID != nil {
		addClause("d.agent_id = $%d", *params.AgentID)
	}
	if params.CreatedAtFrom != nil {
		addClause("d.created_at >= $%d", *params.CreatedAtFrom)
	}
	if params.CreatedAtTo != nil {
		addClause("d.created_at < $%d", *params.CreatedAtTo)
	}
	if params.ValueCentsFrom != nil {
		addClause("d.value_cents >= $%d", *params.ValueCentsFrom)
	}
	if params.ValueCentsTo != nil {
		addClause("d.value_cents <= $%d", *params.ValueCentsTo)
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func mapDealSortColumn(sortBy string) string {
	switch sortBy {
	case "title":
		return "d.title"
	case "value":
		return "d.value_cents"
	case "score":
		return "d.engagement_score"
	case "stage":
		return "d.stage"
	case "lastActivityAt":
		return "d.last_activity_at"
	case "updatedAt":
		return "d.updated_at"
	default:
		return "d.created_at"
	}
}

func prefixedDealColumns() string {
	cols := strings.Split(dealColumns, ",")
	for i, c := range cols {
		cols[i] = "d." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
