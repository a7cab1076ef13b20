package catalog

// Fixtures returns the builtin catalog: three recipes, three Moscow shops
// and their mock prices. Prices are in roubles per unit.
func Fixtures() *Static {
	s, err := NewStatic(fixtureRecipes(), fixtureShops(), fixturePrices())
	if err != nil {
		panic("catalog: builtin fixtures are invalid: " + err.Error())
	}
	return s
}

func fixtureRecipes() []Recipe {
	return []Recipe{
		{
			ID:            "r_001",
			Name:          "Курица с брокколи на пару",
			Description:   "Лёгкое диетическое блюдо для диабетиков",
			Macros:        Macros{Calories: 320, Protein: 42, Fat: 9, Carbs: 18},
			GlycemicIndex: 35,
			Purines:       45,
			SuitableFor:   Suitability{Diabetes: true, Gout: false, Celiac: true},
			Ingredients: []Ingredient{
				{Name: "Куриное филе", Amount: 300, Unit: "g"},
				{Name: "Брокколи", Amount: 200, Unit: "g"},
				{Name: "Оливковое масло", Amount: 10, Unit: "ml"},
				{Name: "Соль, перец", Amount: 1, Unit: "щепотка"},
			},
			Instructions: []string{
				"Нарезать курицу кусочками",
				"Разделить брокколи на соцветия",
				"Готовить на пару 15-20 минут",
				"Приправить солью и перцем",
			},
		},
		{
			ID:            "r_002",
			Name:          "Салат «Зелёный микс»",
			Description:   "Лёгкий овощной салат для всех диагнозов",
			Macros:        Macros{Calories: 150, Protein: 5, Fat: 8, Carbs: 12},
			GlycemicIndex: 20,
			Purines:       5,
			SuitableFor:   Suitability{Diabetes: true, Gout: true, Celiac: true},
			Ingredients: []Ingredient{
				{Name: "Листья салата", Amount: 100, Unit: "g"},
				{Name: "Помидоры", Amount: 100, Unit: "g"},
				{Name: "Огурец", Amount: 1, Unit: "шт"},
				{Name: "Оливковое масло", Amount: 15, Unit: "ml"},
				{Name: "Лимонный сок", Amount: 15, Unit: "ml"},
			},
			Instructions: []string{
				"Промыть салат и овощи",
				"Нарезать овощи",
				"Смешать в миске",
				"Приправить маслом и лимоном",
			},
		},
		{
			ID:            "r_003",
			Name:          "Рыба на гриле",
			Description:   "Белая рыба с минимумом пуринов",
			Macros:        Macros{Calories: 280, Protein: 38, Fat: 12, Carbs: 2},
			GlycemicIndex: 10,
			Purines:       120,
			SuitableFor:   Suitability{Diabetes: true, Gout: false, Celiac: true},
			Ingredients: []Ingredient{
				{Name: "Морская рыба", Amount: 300, Unit: "g"},
				{Name: "Лимон", Amount: 1, Unit: "шт"},
				{Name: "Зелень", Amount: 20, Unit: "g"},
			},
			Instructions: []string{
				"Подготовить рыбу",
				"Выложить на гриль",
				"Готовить 12-15 минут",
				"Украсить лимоном и зеленью",
			},
		},
	}
}

func fixtureShops() []Shop {
	return []Shop{
		{
			ID:           "shop_001",
			Name:         "Пятёрочка на Красной площади",
			Latitude:     55.7558,
			Longitude:    37.6173,
			Address:      "Москва, Красная площадь, 1",
			Rating:       4.7,
			WorkingHours: "08:00-23:00",
		},
		{
			ID:           "shop_002",
			Name:         "Магнит",
			Latitude:     55.7500,
			Longitude:    37.6200,
			Address:      "Москва, Тверская, 15",
			Rating:       4.5,
			WorkingHours: "07:00-23:00",
		},
		{
			ID:           "shop_003",
			Name:         "Дикси",
			Latitude:     55.7600,
			Longitude:    37.6100,
			Address:      "Москва, Охотный ряд, 2",
			Rating:       4.3,
			WorkingHours: "06:00-23:00",
		},
	}
}

func fixturePrices() PriceTable {
	return PriceTable{
		"shop_001": {
			"Куриное филе":    289,
			"Брокколи":        49,
			"Салат":           35,
			"Помидоры":        45,
			"Огурец":          15,
			"Оливковое масло": 320,
		},
		"shop_002": {
			"Куриное филе":    269,
			"Брокколи":        59,
			"Салат":           39,
			"Помидоры":        49,
			"Огурец":          18,
			"Оливковое масло": 299,
		},
		"shop_003": {
			"Куриное филе":    299,
			"Брокколи":        44,
			"Салат":           32,
			"Помидоры":        42,
			"Огурец":          12,
			"Оливковое масло": 340,
		},
	}
}
