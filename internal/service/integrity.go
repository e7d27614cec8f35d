package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/model"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	DailyLogs         int      `json:"daily_logs"`
	UndecodableLogs   int      `json:"undecodable_logs"`
	MealScores        int      `json:"meal_scores"`
	UndecodableScores int      `json:"undecodable_scores"`
	Problems          []string `json:"problems,omitempty"`
	FixedLogs         int      `json:"fixed_logs,omitempty"`
}

// CreateBackup writes a consistent copy of the open database to outPath with
// VACUUM INTO and stores its checksum next to it.
func CreateBackup(ctx context.Context, db *sql.DB, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("write backup: %w", err)
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	if expected, err := os.ReadFile(backupPath + ".sha256"); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RunDoctor checks that every stored document decodes. With fix, undecodable
// daily logs are reset to the empty aggregate of their day.
func RunDoctor(ctx context.Context, store *docstore.Store, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	broken := make([]docstore.Ref, 0)

	err := store.Scan(ctx, docstore.CollectionDailyLogs, func(snap docstore.Snapshot) error {
		report.DailyLogs++
		day, err := model.ParseDay(snap.Ref.Day)
		if err != nil {
			report.UndecodableLogs++
			report.Problems = append(report.Problems, fmt.Sprintf("%s: bad day key", snap.Ref))
			return nil
		}
		if _, err := model.DecodeDailyLog(snap.Data, snap.Ref.UserID, day); err != nil {
			report.UndecodableLogs++
			report.Problems = append(report.Problems, fmt.Sprintf("%s: %v", snap.Ref, err))
			broken = append(broken, snap.Ref)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("doctor daily logs: %w", err)
	}

	err = store.Scan(ctx, docstore.CollectionMealScores, func(snap docstore.Snapshot) error {
		report.MealScores++
		var score model.MealScore
		if err := json.Unmarshal(snap.Data, &score); err != nil {
			report.UndecodableScores++
			report.Problems = append(report.Problems, fmt.Sprintf("%s: %v", snap.Ref, err))
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("doctor meal scores: %w", err)
	}

	if fix {
		for _, ref := range broken {
			day, _ := model.ParseDay(ref.Day)
			data, err := model.NewDailyLog(ref.UserID, day).Encode()
			if err != nil {
				return report, err
			}
			if err := store.Replace(ctx, ref, data); err != nil {
				return report, fmt.Errorf("doctor fix %s: %w", ref, err)
			}
			report.FixedLogs++
		}
	}
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
