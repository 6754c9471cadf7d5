// Package engine разрешает логический граф workflow в эффективный
// граф потока данных.
//
// Пакет делает три вещи:
//   - Resolution прослеживает вход/выход узла до настоящего источника
//     данных сквозь bypass- и виртуальные узлы, с детекцией циклов
//   - ResolveVariables убирает косвенность именованных переменных
//     (пары Set/Get) из уплощённого графа
//   - ExecutionOrder строит топологический порядок выполнения узлов
//
// Разрешение — чистый обход без побочных эффектов: ничего не кэшируется
// между проходами, каждый проход создаёт свежие ExecRef.
package engine
