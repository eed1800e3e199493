package purchase

import "errors"

// Purchase ドメインのエラー定義
var (
	ErrPurchaseNotFound            = errors.New("購入記録が見つかりません")
	ErrInvalidQuantity             = errors.New("数量は1以上である必要があります")
	ErrEventIDRequired             = errors.New("イベントIDは必須です")
	ErrBuyerIDRequired             = errors.New("購入者IDは必須です")
	ErrIdempotencyKeyRequired      = errors.New("冪等性キーは必須です")
	ErrPaymentTokenRequired        = errors.New("決済トークンは必須です")
	ErrIdempotencyKeyAlreadyExists = errors.New("同じ冪等性キーの購入が既に存在します")
	ErrPaymentDeclined             = errors.New("決済が拒否されました")
	ErrPurchaseInProgress          = errors.New("同じ購入リクエストが処理中です")
	ErrPurchaseNotPending          = errors.New("仮記録ではない購入は確定できません")
)
