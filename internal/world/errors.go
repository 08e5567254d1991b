package world

import "errors"

// Ошибки операций над сеткой мира. Проверяются через errors.Is.
var (
	ErrOutOfBounds      = errors.New("координаты вне границ мира")
	ErrUnknownBlockType = errors.New("неизвестный тип блока")
	ErrUnknownWallType  = errors.New("неизвестный тип стены")
	ErrUnknownTool      = errors.New("неизвестный инструмент")
	ErrUnknownItem      = errors.New("неизвестный тип предмета")
	ErrShapeMismatch    = errors.New("сетка не прямоугольная")
	ErrSizeMismatch     = errors.New("размер инвентаря не совпадает")
	ErrNotFound         = errors.New("не найдено")
	ErrSerialization    = errors.New("ошибка сериализации")
	ErrRegistryFull     = errors.New("реестр типов переполнен")
)
