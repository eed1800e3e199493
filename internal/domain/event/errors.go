package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound         = errors.New("イベントが見つかりません")
	ErrVenueIDRequired       = errors.New("会場IDは必須です")
	ErrTitleRequired         = errors.New("イベント名は必須です")
	ErrInvalidEventTime      = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrInvalidFaceValue      = errors.New("額面価格は1以上である必要があります")
	ErrSoldExceedsTotal      = errors.New("販売済み数が総チケット数を超えています")
)
