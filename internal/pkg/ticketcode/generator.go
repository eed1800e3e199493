package ticketcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// 紛らわしい文字（0/O, 1/I など）を除いたアルファベット
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength はチケットコードの固定長
const CodeLength = 12

// Generator はチケット表示コードの生成インターフェース
// 衝突確率はアルファベットサイズとコード長から無視できる水準だが、
// 一意性チェック付きの実装に差し替えられるようインターフェースにしている
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator は暗号論的乱数によるコード生成器
type RandomGenerator struct{}

// NewRandomGenerator は新しいRandomGeneratorを作成する
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate は固定長のチケットコードを生成する
func (g *RandomGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("乱数生成に失敗: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

var _ Generator = (*RandomGenerator)(nil)
