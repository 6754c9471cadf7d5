// Package comfy — клиент генерационного бэкенда.
//
// Включает:
//   - client.go — HTTP API (постановка prompt, история, прерывание)
//   - monitor.go — наблюдение за исполнением через WebSocket
//   - messages.go — формат сообщений бэкенда
//
// Ядро движка с сетью не работает; этот пакет — внешняя граница,
// которая кормит трекер событиями прогресса.
package comfy
