package engagement

import "github.com/lingopal/lingopal/internal/domain"

// shopItems is the fixed pet shop.
var shopItems = []domain.ShopItem{
	{ID: "snack", Name: "Berry Snack", Icon: "🍓", Price: 20, Happiness: 10, Emotion: domain.EmotionHappy},
	{ID: "toy", Name: "Bouncy Ball", Icon: "⚽", Price: 50, Happiness: 20, Emotion: domain.EmotionExcited},
	{ID: "book", Name: "Bedtime Book", Icon: "📚", Price: 80, Happiness: 25, Emotion: domain.EmotionSleepy},
	{ID: "hat", Name: "Party Hat", Icon: "🎩", Price: 150, Happiness: 40, Emotion: domain.EmotionExcited},
}

// ShopItems returns the shop catalog.
func ShopItems() []domain.ShopItem {
	return append([]domain.ShopItem(nil), shopItems...)
}

// LookupItem returns the shop item with id.
func LookupItem(id string) (domain.ShopItem, error) {
	for _, it := range shopItems {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.ShopItem{}, domain.ErrItemNotFound
}

// Buy spends coins on item and applies it to the pet.
func Buy(snap domain.Snapshot, item domain.ShopItem) (domain.Snapshot, error) {
	if snap.Progress.Coins < item.Price {
		return snap, domain.ErrInsufficientCoins
	}
	snap.Progress.Coins -= item.Price
	snap.Pet.Happiness = domain.ClampHappiness(snap.Pet.Happiness + item.Happiness)
	if item.Emotion.Valid() {
		snap.Pet.Emotion = item.Emotion
	}
	return snap, nil
}
