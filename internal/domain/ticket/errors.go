package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound           = errors.New("チケットが見つかりません")
	ErrTicketNotAvailable       = errors.New("チケットは購入できません")
	ErrTicketNotReserved        = errors.New("チケットは確保されていません")
	ErrTicketAlreadySold        = errors.New("チケットは既に販売済みです")
	ErrInsufficientTickets      = errors.New("在庫チケットが不足しています")
	ErrInvalidGenerateQuantity  = errors.New("生成数は1〜5000の範囲である必要があります")
	ErrEventIDRequired          = errors.New("イベントIDは必須です")
	ErrCodeRequired             = errors.New("チケットコードは必須です")
)
