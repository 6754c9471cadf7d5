// Package domain содержит модель предметной области: граф узлов со
// слотами и связями, реестр типов узлов, сериализацию сохранённого
// формата, плоский PromptGraph для бэкенда, workflows с версиями,
// цепочки и их запуски.
//
// Пакет не зависит от транспорта и хранилища; все остальные пакеты
// строятся поверх него.
package domain
