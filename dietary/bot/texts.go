package bot

import "github.com/m3rciful/dietbot/dietary/advice"

// texts holds every user-facing string of one locale. Templates take
// already escaped HTML.
type texts struct {
	welcome       string
	brand         string
	welcomeBody   string
	chooseAction  string
	help          string
	menuHint      string
	tryLater      string
	cancelled     string
	nothingToDrop string

	btnSearch    string
	btnShops     string
	btnDiary     string
	btnDietician string
	btnSettings  string
	btnCancel    string
	btnLocation  string
	btnAddDiary  string
	btnBack      string

	askQuery     string
	foundRecipes string
	noRecipes    string
	kcal         string
	gi           string
	purines      string
	bju          string

	askLocation  string
	needLocation string
	shopsFound   string
	noShops      string
	km           string
	hours        string

	diaryTitle string
	diaryEmpty string
	diaryAdded string

	askQuestion string

	settingsTitle string
	settingsHint  string
	diabetes      string
	gout          string
	celiac        string
	on            string
	off           string

	ingredients  string
	steps        string
	costTitle    string
	cheapest     string
	found        string
	perServing   string
	noPrices     string
	shareForCost string
	nearby       string
	notFound     string

	planBuilding string
	statsTitle   string
	statsUsers   string
	statsDiary   string
	statsSendErr string
	statsBuild   string
	adminOnly    string
	rateLimited  string
	staleButton  string
}

var locales = map[string]texts{
	advice.LocaleRU: {
		welcome:      "👋 Добро пожаловать, %s!",
		brand:        "🥗 <b>DietaryApp</b> — ваш персональный диетолог в Telegram.",
		welcomeBody:  "Приложение подбирает рецепты с учётом:\n• 🩺 Сахарного диабета\n• 🦶 Подагры\n• 🌾 Целиакии",
		chooseAction: "Выберите действие:",
		help: "<b>📚 Справка DietaryApp</b>\n\n" +
			"<b>Доступные команды:</b>\n" +
			"/start - Главное меню\n" +
			"/help - Эта справка\n" +
			"/plan [дни] - План питания\n" +
			"/cancel - Отменить текущее действие\n\n" +
			"<b>Основные функции:</b>\n" +
			"🔍 Поиск рецептов с фильтрацией по диагнозам\n" +
			"📍 Поиск ближайших магазинов и цен\n" +
			"📔 Дневник питания\n" +
			"🤖 AI-диетолог",
		menuHint:      "👋 Используйте главное меню для навигации:",
		tryLater:      "❌ Ошибка обработки. Попробуйте позже.",
		cancelled:     "✖️ Действие отменено.",
		nothingToDrop: "Нечего отменять.",

		btnSearch:    "🔍 Поиск рецепта",
		btnShops:     "📍 Магазины рядом",
		btnDiary:     "📔 Мой дневник",
		btnDietician: "🤖 Спросить диетолога",
		btnSettings:  "⚙️ Настройки",
		btnCancel:    "✖️ Отмена",
		btnLocation:  "📍 Отправить геолокацию",
		btnAddDiary:  "➕ В дневник",
		btnBack:      "⬅️ Меню",

		askQuery:     "🔍 Введите ингредиенты или название блюда:\n(например: «курица с овощами»)",
		foundRecipes: "✅ <b>Найденные рецепты:</b>",
		noRecipes:    "❌ Рецепты не найдены. Попробуйте другой запрос.",
		kcal:         "ккал",
		gi:           "ГИ",
		purines:      "Пурины",
		bju:          "БЖУ",

		askLocation:  "📍 Отправьте вашу геолокацию для поиска магазинов",
		needLocation: "📍 Для поиска магазинов нужна геолокация, а не текст. Нажмите кнопку ниже.",
		shopsFound:   "🏪 <b>Магазины рядом:</b>",
		noShops:      "😔 Рядом нет магазинов из нашего списка.",
		km:           "км",
		hours:        "🕒",

		diaryTitle: "📔 <b>Ваш дневник питания (последние %d)</b>",
		diaryEmpty: "📔 Ваш дневник пуст. Начните добавлять рецепты!",
		diaryAdded: "✅ «%s» добавлен в дневник (%s).",

		askQuestion: "🤖 Спросите у AI-диетолога (любой вопрос о питании):",

		settingsTitle: "⚙️ <b>Настройки профиля</b>",
		settingsHint:  "Отметьте свои диагнозы, чтобы рецепты и советы учитывали их.",
		diabetes:      "🩺 Диабет",
		gout:          "🦶 Подагра",
		celiac:        "🌾 Целиакия",
		on:            "✅",
		off:           "⬜",

		ingredients:  "<b>Ингредиенты:</b>",
		steps:        "<b>Приготовление:</b>",
		costTitle:    "💰 <b>Стоимость продуктов</b>",
		cheapest:     "Дешевле всего: %s — %s ₽",
		found:        "найдено %d из %d",
		perServing:   "в среднем %s ₽ за ингредиент",
		noPrices:     "Цены недоступны.",
		shareForCost: "📍 Отправьте геолокацию, чтобы увидеть стоимость в магазинах рядом.",
		nearby:       "<b>Рядом:</b>",
		notFound:     "❌ Рецепт не найден.",

		planBuilding: "📝 Составляем план питания на %d дн...",
		statsTitle:   "📊 <b>Статистика</b>",
		statsUsers:   "Пользователи: %d",
		statsDiary:   "Записей в дневниках: %d",
		statsSendErr: "Ошибок отправки: %d",
		statsBuild:   "Сборка: %s",
		adminOnly:    "⛔ Команда доступна только администратору.",
		rateLimited:  "⏳ Слишком часто. Подождите немного.",
		staleButton:  "Кнопка устарела. Откройте меню заново: /start",
	},
	advice.LocaleEN: {
		welcome:      "👋 Welcome, %s!",
		brand:        "🥗 <b>DietaryApp</b> is your personal dietician in Telegram.",
		welcomeBody:  "It picks recipes that respect:\n• 🩺 Diabetes\n• 🦶 Gout\n• 🌾 Celiac disease",
		chooseAction: "Choose an action:",
		help: "<b>📚 DietaryApp help</b>\n\n" +
			"<b>Commands:</b>\n" +
			"/start - Main menu\n" +
			"/help - This help\n" +
			"/plan [days] - Meal plan\n" +
			"/cancel - Cancel the current action\n\n" +
			"<b>Features:</b>\n" +
			"🔍 Recipe search filtered by diagnoses\n" +
			"📍 Nearby shops and prices\n" +
			"📔 Food diary\n" +
			"🤖 AI dietician",
		menuHint:      "👋 Use the main menu to navigate:",
		tryLater:      "❌ Something went wrong. Please try again later.",
		cancelled:     "✖️ Cancelled.",
		nothingToDrop: "Nothing to cancel.",

		btnSearch:    "🔍 Find a recipe",
		btnShops:     "📍 Shops nearby",
		btnDiary:     "📔 My diary",
		btnDietician: "🤖 Ask the dietician",
		btnSettings:  "⚙️ Settings",
		btnCancel:    "✖️ Cancel",
		btnLocation:  "📍 Share location",
		btnAddDiary:  "➕ Add to diary",
		btnBack:      "⬅️ Menu",

		askQuery:     "🔍 Type ingredients or a dish name:\n(for example: \"chicken with vegetables\")",
		foundRecipes: "✅ <b>Recipes found:</b>",
		noRecipes:    "❌ No recipes found. Try another query.",
		kcal:         "kcal",
		gi:           "GI",
		purines:      "Purines",
		bju:          "P/F/C",

		askLocation:  "📍 Share your location to find shops",
		needLocation: "📍 Shop search needs a location, not text. Use the button below.",
		shopsFound:   "🏪 <b>Shops nearby:</b>",
		noShops:      "😔 None of our shops are nearby.",
		km:           "km",
		hours:        "🕒",

		diaryTitle: "📔 <b>Your food diary (last %d)</b>",
		diaryEmpty: "📔 Your diary is empty. Start adding recipes!",
		diaryAdded: "✅ \"%s\" added to your diary (%s).",

		askQuestion: "🤖 Ask the AI dietician anything about nutrition:",

		settingsTitle: "⚙️ <b>Profile settings</b>",
		settingsHint:  "Mark your diagnoses so recipes and advice take them into account.",
		diabetes:      "🩺 Diabetes",
		gout:          "🦶 Gout",
		celiac:        "🌾 Celiac",
		on:            "✅",
		off:           "⬜",

		ingredients:  "<b>Ingredients:</b>",
		steps:        "<b>Steps:</b>",
		costTitle:    "💰 <b>Ingredient cost</b>",
		cheapest:     "Cheapest: %s, %s ₽",
		found:        "%d of %d found",
		perServing:   "%s ₽ per ingredient on average",
		noPrices:     "No prices available.",
		shareForCost: "📍 Share your location to see prices in nearby shops.",
		nearby:       "<b>Nearby:</b>",
		notFound:     "❌ Recipe not found.",

		planBuilding: "📝 Building a %d-day meal plan...",
		statsTitle:   "📊 <b>Stats</b>",
		statsUsers:   "Users: %d",
		statsDiary:   "Diary entries: %d",
		statsSendErr: "Send failures: %d",
		statsBuild:   "Build: %s",
		adminOnly:    "⛔ This command is for the administrator only.",
		rateLimited:  "⏳ Too fast. Please wait a moment.",
		staleButton:  "This button is outdated. Open the menu again: /start",
	},
}

func textsFor(locale string) texts {
	return locales[advice.NormalizeLocale(locale)]
}
