package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appI18n "github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/parser"
	"github.com/pavelanni/yoprep/internal/store"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Store exams from markup or canonical JSON files",
		Long: `Import parses each exam markup file (or reads canonical exam JSON when the
file ends in .json) and stores its questions. Files whose content is
unchanged since the last import are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	f := cmd.Flags()
	f.String("db", "yoprep.db", "SQLite database path")
	addParserFlags(f)
	addMetaFlags(f)
	f.Bool("force", false, "Import even if the file is unchanged since the last import")
	f.StringP("lang", "l", "fi", "Message language (fi, en)")
	addLogFlags(f)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	p, err := newParser(v)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, path := range args {
		res, skipped, err := importFile(db, p, v, path)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.ExamCode,
			appI18n.Tp(context.Background(), "QuestionsImported", len(res.QuestionIDs)))
	}
	return nil
}

// importFile stores one exam file. It reports skipped when the file's
// content hash matches the one recorded by the previous import.
func importFile(db *store.Store, p *parser.Parser, v *viper.Viper, path string) (model.ImportResult, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ImportResult{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := db.GetImportedFileHash(path)
	if err != nil {
		return model.ImportResult{}, false, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash && !v.GetBool("force") {
		slog.Info("exam file unchanged, skipping", "path", path)
		return model.ImportResult{}, true, nil
	}
	if storedHash != "" && storedHash != hash {
		slog.Info("exam file changed since last import, updating", "path", path)
	}

	var doc model.ExamDocument
	if strings.EqualFold(filepath.Ext(path), ".json") {
		doc, err = model.Unmarshal(data)
		if err != nil {
			return model.ImportResult{}, false, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		res, err := p.ParseReader(bytes.NewReader(data), v.GetString("encoding"), examMeta(v, path))
		if err != nil {
			return model.ImportResult{}, false, fmt.Errorf("parse %s: %w", path, err)
		}
		doc = res.Document
	}

	saved, err := db.SaveExam(doc, path)
	if err != nil {
		return model.ImportResult{}, false, fmt.Errorf("store %s: %w", path, err)
	}
	if err := db.SetImportedFileHash(path, hash); err != nil {
		return model.ImportResult{}, false, fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("imported exam", "path", path, "exam_code", saved.ExamCode, "count", len(saved.QuestionIDs))
	return saved, false, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
