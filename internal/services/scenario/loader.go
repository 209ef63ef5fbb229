package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	apperrors "github.com/iwtcode/linacService/pkg/errors"
)

// UnknownID - id сценария, если его не удалось вывести из имени файла
const UnknownID = "unknown"

// IDFromFile выводит id сценария из имени файла: "dir/A2.json" -> "A2".
func IDFromFile(file string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(file), "\\", "/"))
	if base == "." || base == "/" {
		return UnknownID
	}
	if strings.EqualFold(filepath.Ext(base), ".json") {
		base = base[:len(base)-len(".json")]
	}
	if base == "" {
		return UnknownID
	}
	return base
}

// Parse разбирает запись сценария. Поврежденный JSON дает сценарий без полей.
// Значение неверного типа пропускается, остальная запись сохраняется.
func Parse(file string, data []byte) (*models.ScenarioRecord, error) {
	rec := &models.ScenarioRecord{}
	err := json.Unmarshal(data, rec)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			rec = &models.ScenarioRecord{}
		}
		err = fmt.Errorf("сценарий '%s' поврежден: %w", file, err)
	}
	rec.ScenarioID = IDFromFile(file)
	rec.File = file
	return rec, err
}

// Loader читает сценарии из каталога SCENARIO_DIR
type Loader struct {
	dir    string
	logger *logging.Logger
}

var _ interfaces.ScenarioLoader = (*Loader)(nil)

func NewLoader(dir string, logger *logging.Logger) *Loader {
	return &Loader{dir: dir, logger: logger.WithPrefix("SCENARIO")}
}

// Load читает файл сценария. Путь за пределами каталога сценариев отклоняется.
func (l *Loader) Load(file string) (*models.ScenarioRecord, error) {
	path, err := l.resolve(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.NotFoundErrorCode, apperrors.NotFound,
			fmt.Errorf("%w: %v", apperrors.ErrScenarioLoad, err), false)
	}

	rec, err := Parse(file, data)
	if err != nil {
		l.logger.Warn("Malformed scenario, invalid values skipped", "file", file, "error", err)
	}
	l.logger.Info("Scenario loaded", "file", file, "scenario", rec.ScenarioID, "fields", len(rec.Fields()))
	return rec, nil
}

// List возвращает имена файлов сценариев в каталоге
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать каталог сценариев: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) resolve(file string) (string, error) {
	clean := filepath.Clean("/" + strings.ReplaceAll(file, "\\", "/"))
	if strings.TrimSpace(file) == "" || clean == "/" {
		return "", apperrors.NewAppError(apperrors.InvalidDataCode, apperrors.BadRequest,
			fmt.Errorf("%w: пустое имя файла", apperrors.ErrScenarioLoad), true)
	}
	return filepath.Join(l.dir, clean), nil
}
