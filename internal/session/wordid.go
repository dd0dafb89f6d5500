package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

var adjectives = []string{
	"amber", "bold", "brisk", "calm", "clear",
	"coral", "crisp", "deep", "dry", "fair",
	"fast", "firm", "fresh", "gold", "gray",
	"green", "high", "iron", "keen", "lean",
	"light", "low", "mild", "neat", "pale",
	"plain", "prime", "pure", "quiet", "rare",
	"red", "ripe", "safe", "slim", "soft",
	"stark", "still", "swift", "tall", "teal",
	"true", "warm", "wide", "wise", "young",
}

var nouns = []string{
	"arch", "ash", "bay", "beam", "brook",
	"cape", "cedar", "cliff", "cove", "crane",
	"creek", "crest", "dale", "delta", "drift",
	"dune", "elm", "ember", "fern", "finch",
	"flint", "forge", "fox", "gale", "glen",
	"grove", "hawk", "heath", "hill", "jade",
	"lark", "ledge", "maple", "mesa", "moss",
	"oak", "otter", "owl", "peak", "pond",
	"quail", "raven", "reef", "ridge", "shore",
	"slope", "spark", "stone", "tide", "vale",
}

// GenerateID returns a human-friendly session ID like "amber-fox-3f2c".
// The hex tail keeps collisions unlikely without making the ID unreadable
// in audit history output.
func GenerateID() string {
	var tail [2]byte
	if _, err := rand.Read(tail[:]); err != nil {
		return fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s-%s", pickRandom(adjectives), pickRandom(nouns), hex.EncodeToString(tail[:]))
}

func pickRandom(list []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return list[0]
	}
	return list[n.Int64()]
}
