package advice

import (
	"fmt"
	"strings"

	"github.com/m3rciful/dietbot/dietary/catalog"
)

const (
	LocaleRU = "ru"
	LocaleEN = "en"
)

type phrases struct {
	system          string
	diabetes        string
	gout            string
	celiac          string
	hasDiagnoses    string
	noDiagnoses     string
	question        string
	considerHealth  string
	planLowGI       string
	planLowPurines  string
	planGlutenFree  string
	planMustInclude string
	planBalanced    string
	planRequest     string
	planDetails     string
	unavailable     string
	planFailed      string
}

var texts = map[string]phrases{
	LocaleRU: {
		system: "Вы профессиональный диетолог с 20-летним опытом. " +
			"Отвечайте на вопросы о питании кратко, ясно и научно обоснованно. " +
			"Всегда рекомендуйте консультацию с врачом для серьёзных проблем. " +
			"Ответы должны быть на русском языке.",
		diabetes:        "сахарный диабет",
		gout:            "подагра",
		celiac:          "целиакия",
		hasDiagnoses:    "Пользователь имеет: %s.",
		noDiagnoses:     "Пользователь без специальных диагнозов.",
		question:        "Вопрос: %s",
		considerHealth:  "Ответьте с учётом здоровья пользователя.",
		planLowGI:       "низкий гликемический индекс",
		planLowPurines:  "низкое содержание пуринов",
		planGlutenFree:  "без глютена",
		planMustInclude: "План питания должен включать:",
		planBalanced:    "Сбалансированный план питания.",
		planRequest:     "Создайте план питания на %d дней.",
		planDetails:     "Для каждого дня укажите завтрак, обед, ужин и перекус. Включите основные питательные показатели.",
		unavailable:     "❌ Извините, диетолог временно недоступен. Пожалуйста, попробуйте позже.",
		planFailed:      "❌ Не удалось создать план питания.",
	},
	LocaleEN: {
		system: "You are a professional dietician with 20 years of experience. " +
			"Answer nutrition questions briefly, clearly and on a scientific basis. " +
			"Always recommend seeing a doctor for serious health issues. " +
			"Answer in English.",
		diabetes:        "diabetes",
		gout:            "gout",
		celiac:          "celiac disease",
		hasDiagnoses:    "The user has: %s.",
		noDiagnoses:     "The user has no special diagnoses.",
		question:        "Question: %s",
		considerHealth:  "Answer taking the user's health into account.",
		planLowGI:       "low glycemic index",
		planLowPurines:  "low purine content",
		planGlutenFree:  "gluten free",
		planMustInclude: "The meal plan must be:",
		planBalanced:    "A balanced meal plan.",
		planRequest:     "Create a %d-day meal plan.",
		planDetails:     "For every day list breakfast, lunch, dinner and a snack. Include the main nutrition values.",
		unavailable:     "❌ Sorry, the dietician is temporarily unavailable. Please try again later.",
		planFailed:      "❌ Could not create a meal plan.",
	},
}

// NormalizeLocale maps any unsupported or empty locale to Russian.
func NormalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if _, ok := texts[locale]; ok {
		return locale
	}
	return LocaleRU
}

func phrasesFor(locale string) phrases {
	return texts[NormalizeLocale(locale)]
}

// SystemPrompt is the fixed dietician persona for a locale.
func SystemPrompt(locale string) string {
	return phrasesFor(locale).system
}

// DiagnosisContext names the active diagnoses or states there are none.
func DiagnosisContext(d catalog.Diagnoses, locale string) string {
	p := phrasesFor(locale)
	var names []string
	if d.Diabetes {
		names = append(names, p.diabetes)
	}
	if d.Gout {
		names = append(names, p.gout)
	}
	if d.Celiac {
		names = append(names, p.celiac)
	}
	if len(names) == 0 {
		return p.noDiagnoses
	}
	return fmt.Sprintf(p.hasDiagnoses, strings.Join(names, ", "))
}

// QuestionPrompt builds the user-role message for a question.
func QuestionPrompt(question string, d catalog.Diagnoses, locale string) string {
	p := phrasesFor(locale)
	return DiagnosisContext(d, locale) + "\n" +
		fmt.Sprintf(p.question, question) + "\n" +
		p.considerHealth
}

// MealPlanPrompt builds the user-role message for a multi-day plan with the
// dietary constraints listed as bullets.
func MealPlanPrompt(days int, d catalog.Diagnoses, locale string) string {
	p := phrasesFor(locale)
	var b strings.Builder
	fmt.Fprintf(&b, p.planRequest, days)
	b.WriteByte('\n')
	if d.Any() {
		b.WriteString(p.planMustInclude)
		for _, c := range []struct {
			on   bool
			text string
		}{
			{d.Diabetes, p.planLowGI},
			{d.Gout, p.planLowPurines},
			{d.Celiac, p.planGlutenFree},
		} {
			if c.on {
				b.WriteString("\n- " + c.text)
			}
		}
	} else {
		b.WriteString(p.planBalanced)
	}
	b.WriteByte('\n')
	b.WriteString(p.planDetails)
	return b.String()
}

// FallbackText is what the user sees when AskDietician fails. Every error
// maps to the same apology; a nil error yields an empty string.
func FallbackText(err error, locale string) string {
	if err == nil {
		return ""
	}
	return phrasesFor(locale).unavailable
}

// MealPlanFallbackText is shown when GenerateMealPlan fails.
func MealPlanFallbackText(locale string) string {
	return phrasesFor(locale).planFailed
}
