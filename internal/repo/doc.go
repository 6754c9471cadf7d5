// Package repo реализует доступ к PostgreSQL через pgxpool:
// репозитории workflows (с версиями), цепочек и запусков.
//
// Отсутствие строки транслируется в ErrNotFound, конфликт
// уникальности — в ErrAlreadyExists.
package repo
