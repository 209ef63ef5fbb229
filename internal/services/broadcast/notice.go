package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/iwtcode/linacService/internal/domain/models"
)

func encodeNotice(n models.StateNotice) ([]byte, error) {
	return json.Marshal(n)
}

// decodeNotice отбрасывает сообщения других типов и без id сценария
func decodeNotice(body []byte) (models.StateNotice, error) {
	var n models.StateNotice
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("не удалось разобрать уведомление: %w", err)
	}
	if n.Type != models.NoticeTypeState || n.ScenarioID == "" {
		return n, fmt.Errorf("неизвестное уведомление: type=%q scenario=%q", n.Type, n.ScenarioID)
	}
	return n, nil
}
