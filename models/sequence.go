package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// nextSequenceNumber returns prefix followed by the next zero padded counter found
// among existing values of column that share the prefix. Counters that outgrow
// width keep counting, so the highest value is the longest one first.
func nextSequenceNumber[T any](tx *gorm.DB, column string, prefix string, width int) (string, error) {
	var model T
	var values []string
	err := tx.Model(&model).
		Unscoped().
		Where(column+" LIKE ?", prefix+"%").
		Order("LENGTH(" + column + ") DESC").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &values).Error
	if err != nil {
		return "", err
	}
	next := 1
	if len(values) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(values[0], prefix))
		if err != nil {
			return "", fmt.Errorf("parse sequence number %q: %w", values[0], err)
		}
		next = n + 1
	}
	return fmt.Sprintf("%s%0*d", prefix, width, next), nil
}

func quotationNumberPrefix(t time.Time) string {
	return "QT-" + t.Format("0601") + "-"
}

func packingListNumberPrefix(t time.Time) string {
	return "PL-" + t.Format("200601") + "-"
}

func debitNoteNumberPrefix(prefix string, t time.Time) string {
	return prefix + "-" + t.Format("060102") + "-"
}
