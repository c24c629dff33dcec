package classifier

// StopWordsRU are Russian spam and promotion keywords.
var StopWordsRU = []string{
	"работа", "вакансии", "реклама", "скидка", "выиграй", "приз", "деньги", "заработок",
	"инвестиции", "партнёрка", "реферальная", "доход", "онлайн", "оффлайн", "бизнес",
	"проект", "услуги", "срочно", "кэшбэк", "ставки", "казино", "играть", "выигрыш",
	"джекпот", "рулетка", "покер", "лотерея", "турнир", "приложение", "скачать",
	"регистрация", "зарегистрируйся", "вход", "логин", "пароль", "аккаунт", "профиль",
	"пополнить", "вывод", "перевод", "оплата", "карта", "кошелёк", "крипта", "биткоин",
	"эфир", "токен", "майнинг", "ферма", "обмен", "курс", "валюта", "доллар", "рубль",
	"евро", "займ", "кредит", "ипотека", "рассрочка", "долг", "финансы", "банк", "счёт",
	"интернет", "сайт", "платформа", "сервис", "рассылка", "новости", "статья", "блог",
	"курс", "обучение", "тренинг", "вебинар", "мастер-класс", "коучинг", "наставник",
	"эксперт", "специалист", "профессия", "карьера", "резюме", "опыт", "заявка", "анкета",
	"форма", "опрос", "тест", "проверка", "успех", "мотивация", "цель", "мечта", "план",
	"стратегия", "схема", "секрет", "метод", "техника", "программа", "система", "бот",
	"скрипт", "код", "разработка", "дизайн", "логотип", "бренд", "компания", "фирма",
	"стартап", "инновация", "технология", "гаджет", "устройство", "прибор", "ремонт",
	"инструкция", "руководство", "документы", "договор", "соглашение", "условия", "правила",
	"политика", "конфиденциальность", "безопасность", "защита", "гарант", "стабильность",
	"прогноз", "тренд", "анализ", "статистика", "отчёт", "график", "таблица", "диаграмма",
	"рост", "прибыль", "оборот", "поток", "клиенты", "аудитория", "трафик", "лиды",
	"конверсия", "маркетинг", "таргет", "контекст", "seo", "продвижение", "раскрутка",
	"рекламодатель", "бюджет", "вложения", "окупаемость", "рентабельность", "пасссивный",
	"активный", "удалённо", "офис", "график", "смены", "задачи", "процесс", "этапы", "шаги",
	"решение", "проблема", "вызов", "конкурс", "соревнование", "активация", "промокод",
	"код", "ссылка", "переход", "клик", "подключение", "доступ", "пакет", "тариф",
	"абонемент", "членство", "чат",
}

// StopWordsEN are English spam and promotion keywords.
var StopWordsEN = []string{
	"work", "job", "buy", "sell", "order", "delivery", "free", "discount", "promo",
	"advertising", "win", "prize", "money", "earn", "invest", "referral", "partner",
	"income", "online", "business", "cash", "bonus", "gift", "quick", "easy", "casino",
	"bet", "play", "jackpot", "lottery", "signup", "register", "login", "payment",
	"withdraw", "bitcoin", "crypto", "trading", "profit", "course", "training", "webinar",
	"coach", "expert", "service", "platform", "app", "download", "link", "click",
}

// BadWordsRU are Russian profanity and insults.
var BadWordsRU = []string{
	"блять", "сука", "пиздец", "хуй", "ебать", "ебаный", "пидор", "гандон", "мудак",
	"долбоёб", "уёбок", "тварь", "сучка", "хуёво", "пизда", "жопа", "нахуй", "ебало",
	"залупа", "пиздеж", "говно", "срать", "дерьмо", "бля", "шлюха", "потаскуха", "пидорас",
	"хуесос", "еблан", "дебил", "идиот", "кретин", "урод", "выродок", "придурок",
	"отморозок", "чмо", "скотина", "козёл", "баран", "тупой", "глупый", "тормоз", "позор",
	"гнида", "падла", "сволочь", "гад",
}
