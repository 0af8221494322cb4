package domain

// Banner is a cosmetic award attached to a user profile.
type Banner struct {
	Caption string `json:"caption"`
	Rarity  string `json:"rarity"`
	Image   string `json:"image,omitempty"`
}
