// Package chain выполняет цепочки workflows.
//
// Цепочка — упорядоченный список workflows в API-формате. Исполнитель
// прогоняет их последовательно: разрешает подстановки входов, отдаёт
// prompt бэкенду, следит за исполнением через WebSocket, кэширует
// выходные файлы для следующих узлов.
package chain
