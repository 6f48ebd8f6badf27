package namegen

import "math/rand/v2"

var (
	adjectives = []string{"Cool", "Fast", "Bright", "Sassy", "Funky"}
	nouns      = []string{"Tiger", "Eagle", "Panda", "Shark", "Wolf"}
)

// Pick 随机生成一个“形容词 名词”形式的展示名，会话存续期内不再变化。
func Pick() string {
	return adjectives[rand.IntN(len(adjectives))] + " " + nouns[rand.IntN(len(nouns))]
}
