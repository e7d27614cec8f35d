package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Runtime settings stored in app_config. Environment configuration wins over
// these when both are set.
const (
	ConfigDefaultUser    = "default_user"
	ConfigMinValidDays   = "min_valid_days"
	ConfigSerializeByDay = "serialize_by_day"
	ConfigWaterGoalOz    = "water_goal_oz"
)

var knownConfigKeys = map[string]func(string) error{
	ConfigDefaultUser: func(v string) error {
		if v == "" {
			return fmt.Errorf("default_user must not be empty")
		}
		return nil
	},
	ConfigMinValidDays: func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("min_valid_days must be a positive integer")
		}
		return nil
	},
	ConfigSerializeByDay: func(v string) error {
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("serialize_by_day must be true or false")
		}
		return nil
	},
	ConfigWaterGoalOz: func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("water_goal_oz must be a positive number")
		}
		return nil
	},
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	check, ok := knownConfigKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := check(value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}
