package extract

import (
	"strings"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

// categoryRules are checked in priority order; the first category with
// any keyword contained in the text wins. Plain substring containment,
// no tokenization, so "худи" inside a longer word still matches.
var categoryRules = []struct {
	category models.Category
	keywords []string
}{
	{models.CategoryOuterwear, []string{
		"hoodie", "худи", "jacket", "куртк", "coat", "пальто",
		"бомбер", "ветровк", "zip", "зип",
	}},
	{models.CategoryShoes, []string{
		"sneaker", "кросс", "кед", "ботин", "shoe", "dunk",
		"jordan", "сланц", "тапк",
	}},
	{models.CategoryTShirts, []string{
		"t-shirt", "tee", "футболк", "лонгслив", "longsleeve", "поло",
	}},
	{models.CategoryPants, []string{
		"pants", "jeans", "штан", "джинс", "брюк", "шорт", "карго",
	}},
	{models.CategoryAccessories, []string{
		"cap", "кепк", "bag", "сумк", "рюкзак", "belt", "ремен",
		"очки", "носк", "шапк",
	}},
}

// Classify maps free text to a category label. Deterministic: depends
// only on the fixed rule order above. Unmatched text is CategoryOther.
func Classify(text string) models.Category {
	text = strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return models.CategoryOther
}
