package session

import (
	"fmt"
	"math/rand/v2"
)

// Word lists for operator-friendly session labels.
var adjectives = []string{
	"swift", "bright", "calm", "bold", "clear", "deep", "eager", "fair",
	"gentle", "happy", "keen", "light", "merry", "noble", "quick", "warm",
	"wise", "brave", "cool", "deft", "fine", "grand", "jolly", "kind",
	"lively", "proud", "sharp", "smooth", "sound", "sweet", "vital", "wild",
}

var nouns = []string{
	"panda", "tiger", "eagle", "dolphin", "falcon", "phoenix", "dragon", "wolf",
	"bear", "hawk", "lynx", "otter", "raven", "seal", "swan", "whale",
	"bison", "crane", "deer", "fox", "heron", "jaguar", "koala", "lion",
	"moose", "owl", "panther", "quail", "robin", "stork", "turtle", "viper",
}

// generateHumanID produces a low-collision label like "swift-panda-2347",
// independent of the session id.
func generateHumanID() string {
	return fmt.Sprintf("%s-%s-%d",
		adjectives[rand.IntN(len(adjectives))],
		nouns[rand.IntN(len(nouns))],
		1000+rand.IntN(9000))
}
