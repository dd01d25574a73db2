package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"currency symbol", "Sneakers 4 500₽ new", "4500"},
		{"currency word", "Nike Dunk Low 7200 руб в наличии", "7200"},
		{"currency abbreviated", "winter coat 12 900 руб.", "12900"},
		{"dollar sign", "Supreme tee 45$", "45"},
		{"usd word", "hoodie 120 USD", "120"},
		{"price marker", "Цена: 3500, размеры 40-45", "3500"},
		{"price marker english", "price - 990", "990"},
		{"bare digit run", "арт. 100293 в наличии", "100293"},
		{"first currency match wins", "было 5000₽, сейчас 3999₽", "5000"},
		{"no digits", "новое поступление, пишите в лс", models.PriceOnRequest},
		{"empty", "", models.PriceOnRequest},
		{"short digit run ignored", "размер 42", models.PriceOnRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Price(tt.text))
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		postID int64
		want   string
	}{
		{"first line", "Nike Dunk Low Panda\nРазмеры 36-45\nЦена 7200₽", 10, "Nike Dunk Low Panda"},
		{"short first line falls back to full text", "42\nхорошие кроссовки в наличии", 10, "42\nхорошие кроссовки в наличии"},
		{"empty caption", "", 77, "Item #77"},
		{"whitespace only", "   \n  ", 5, "Item #5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.text, tt.postID))
		})
	}
}

func TestTitleTruncation(t *testing.T) {
	long := strings.Repeat("кроссовки ", 20)
	got := Title(long, 1)
	assert.Equal(t, 60, len([]rune(got)))
}

func TestPriceAlwaysNonEmpty(t *testing.T) {
	for _, text := range []string{"", "abc", "Sneakers 4 500₽ new", "цена 100"} {
		assert.NotEmpty(t, Price(text))
		assert.NotEmpty(t, Title(text, 1))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Category
	}{
		{"shoes ru", "Кроссовки Nike Dunk Low", models.CategoryShoes},
		{"shoes en", "fresh sneakers drop", models.CategoryShoes},
		{"outerwear", "зип худи Carhartt", models.CategoryOuterwear},
		{"tshirt", "Футболка Stussy", models.CategoryTShirts},
		{"pants", "джинсы багги", models.CategoryPants},
		{"accessories", "кепка NY", models.CategoryAccessories},
		{"keyword inside word still matches", "суперкуртка", models.CategoryOuterwear},
		{"no match", "просто пост без ключевых слов", models.CategoryOther},
		{"empty", "", models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

// A text matching several categories classifies under the one checked
// first, and repeated calls agree.
func TestClassifyPriority(t *testing.T) {
	text := "hoodie + t-shirt bundle"
	first := Classify(text)
	assert.Equal(t, models.CategoryOuterwear, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(text))
	}
}
