package service

import (
	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/table"
)

func saveTable(path string, rows []domain.Interaction) error {
	_, err := table.Save(path, table.New(rows))
	return err
}
