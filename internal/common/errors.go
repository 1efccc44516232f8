// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех плагинах бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки денег (кошелёк, банк, переводы)
var (
	// ErrInsufficientBalance — недостаточно монет на счёте
	ErrInsufficientBalance = errors.New("недостаточно монет на счёте")
	// ErrSelfTransfer — попытка перевести монеты самому себе
	ErrSelfTransfer = errors.New("нельзя переводить монеты самому себе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки хранилища
var (
	// ErrStoreUnavailable — база данных недоступна
	ErrStoreUnavailable = errors.New("хранилище недоступно")
	// ErrNoDocuments — документ не найден в коллекции
	ErrNoDocuments = errors.New("документ не найден")
	// ErrDuplicateKey — нарушение уникального индекса
	ErrDuplicateKey = errors.New("документ с таким ключом уже существует")
)

// Ошибки роутера и плагинов
var (
	// ErrNotAuthorized — команда только для владельца/админа
	ErrNotAuthorized = errors.New("нет прав на эту команду")
	// ErrRateLimited — слишком частые команды
	ErrRateLimited = errors.New("слишком часто, подожди немного")
	// ErrDuplicateCommand — два плагина претендуют на одну команду
	ErrDuplicateCommand = errors.New("команда уже зарегистрирована другим плагином")
)

// Ошибки ставок
var (
	// ErrFixtureNotFound — матч не найден или уже сыгран
	ErrFixtureNotFound = errors.New("матч не найден или уже завершён")
	// ErrEmptySlip — купон пуст, ставить нечего
	ErrEmptySlip = errors.New("купон пуст")
	// ErrStakeOutOfRange — ставка вне допустимого диапазона
	ErrStakeOutOfRange = errors.New("ставка вне допустимого диапазона")
	// ErrDuplicateSelection — на этот матч уже есть выбор в купоне
	ErrDuplicateSelection = errors.New("на этот матч уже есть выбор в купоне")
)

// Ошибки клубов
var (
	// ErrClubExists — у пользователя уже есть клуб
	ErrClubExists = errors.New("у тебя уже есть клуб")
	// ErrClubNotFound — клуба нет
	ErrClubNotFound = errors.New("сначала создай клуб")
	// ErrClubNameTaken — имя клуба занято
	ErrClubNameTaken = errors.New("клуб с таким именем уже существует")
)
