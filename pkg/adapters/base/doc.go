// Package base содержит общую часть адаптеров: приведение значений драйверов
// к сырым формам tds.DecodeField и Result поверх database/sql и pgx.
package base
