package models

type RetCode int

const (
	RetCodeRequote           RetCode = 10004
	RetCodeReject            RetCode = 10006
	RetCodeCancel            RetCode = 10007
	RetCodePlaced            RetCode = 10008
	RetCodeDone              RetCode = 10009
	RetCodeDonePartial       RetCode = 10010
	RetCodeError             RetCode = 10011
	RetCodeTimeout           RetCode = 10012
	RetCodeInvalid           RetCode = 10013
	RetCodeInvalidVolume     RetCode = 10014
	RetCodeInvalidPrice      RetCode = 10015
	RetCodeInvalidStops      RetCode = 10016
	RetCodeTradeDisabled     RetCode = 10017
	RetCodeMarketClosed      RetCode = 10018
	RetCodeNoMoney           RetCode = 10019
	RetCodePriceChanged      RetCode = 10020
	RetCodePriceOff          RetCode = 10021
	RetCodeInvalidExpiration RetCode = 10022
	RetCodeOrderChanged      RetCode = 10023
	RetCodeTooManyRequests   RetCode = 10024
	RetCodeNoChanges         RetCode = 10025
	RetCodeLocked            RetCode = 10028
	RetCodeFrozen            RetCode = 10029
	RetCodeInvalidFill       RetCode = 10030
	RetCodeConnection        RetCode = 10031
	RetCodeLimitOrders       RetCode = 10033
	RetCodeLimitVolume       RetCode = 10034
	RetCodeInvalidOrder      RetCode = 10035
	RetCodePositionClosed    RetCode = 10036
	RetCodeCloseOrderExist   RetCode = 10039
	RetCodeLimitPositions    RetCode = 10040
	RetCodeHedgeProhibited   RetCode = 10046
)

var retCodeText = map[RetCode]string{
	RetCodeRequote:           "реквота",
	RetCodeReject:            "запрос отклонён",
	RetCodeCancel:            "запрос отменён трейдером",
	RetCodePlaced:            "ордер размещён",
	RetCodeDone:              "запрос выполнен",
	RetCodeDonePartial:       "запрос выполнен частично",
	RetCodeError:             "ошибка обработки запроса",
	RetCodeTimeout:           "запрос отменён по таймауту",
	RetCodeInvalid:           "неправильный запрос",
	RetCodeInvalidVolume:     "неправильный объём",
	RetCodeInvalidPrice:      "неправильная цена",
	RetCodeInvalidStops:      "неправильные стопы",
	RetCodeTradeDisabled:     "торговля запрещена",
	RetCodeMarketClosed:      "рынок закрыт",
	RetCodeNoMoney:           "недостаточно средств",
	RetCodePriceChanged:      "цены изменились",
	RetCodePriceOff:          "нет котировок",
	RetCodeInvalidExpiration: "неверная дата истечения",
	RetCodeOrderChanged:      "состояние ордера изменилось",
	RetCodeTooManyRequests:   "слишком частые запросы",
	RetCodeNoChanges:         "в запросе нет изменений",
	RetCodeLocked:            "ордер заблокирован для обработки",
	RetCodeFrozen:            "ордер или позиция заморожены",
	RetCodeInvalidFill:       "неверный тип исполнения",
	RetCodeConnection:        "нет соединения с торговым сервером",
	RetCodeLimitOrders:       "достигнут лимит отложенных ордеров",
	RetCodeLimitVolume:       "достигнут лимит объёма",
	RetCodeInvalidOrder:      "неверный тип ордера",
	RetCodePositionClosed:    "позиция уже закрыта",
	RetCodeCloseOrderExist:   "ордер на закрытие уже существует",
	RetCodeLimitPositions:    "достигнут лимит позиций",
	RetCodeHedgeProhibited:   "хеджирование запрещено",
}

func (c RetCode) IsSuccess() bool {
	switch c {
	case RetCodePlaced, RetCodeDone, RetCodeDonePartial, RetCodeNoChanges:
		return true
	}
	return false
}

func (c RetCode) String() string {
	if text, ok := retCodeText[c]; ok {
		return text
	}
	return "неизвестный код"
}
