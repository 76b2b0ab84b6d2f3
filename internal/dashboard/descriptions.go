package dashboard

import "strings"

const noDescription = "Описание для данной валюты отсутствует."

var descriptions = map[string]string{
	"BTC": "Bitcoin - это децентрализованная цифровая валюта, не имеющая центрального банка или единого администратора.",
	"ETH": "Ethereum - это децентрализованная блокчейн-платформа с открытым исходным кодом и функциональностью смарт-контрактов.",
	"TON": "The Open Network (TON) - это быстрый, безопасный и масштабируемый блокчейн-проект.",
	"USD": "Доллар США - официальная валюта Соединенных Штатов и их территорий.",
	"EUR": "Евро - официальная валюта 20 из 27 стран-членов Европейского Союза.",
	"CNY": "Китайский юань (женьминьби) - официальная валюта Китайской Народной Республики.",
	"AED": "Дирхам ОАЭ - валюта Объединенных Арабских Эмиратов.",
}

// Description returns the short blurb shown next to a currency's stats.
func Description(code string) string {
	if d, ok := descriptions[strings.ToUpper(code)]; ok {
		return d
	}
	return noDescription
}
