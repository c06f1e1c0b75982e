package port

// AlertLog - журнал тревог, одна строка на событие: "[YYYY-MM-DD HH:MM:SS] <message>"
// Реализация должна допускать одновременную запись без перемешивания строк
type AlertLog interface {
	Append(message string) error
}
