package storage

const createEmployersTable = `
CREATE TABLE IF NOT EXISTS employers (
    emp_id    INTEGER PRIMARY KEY,
    name      TEXT NOT NULL,
    vac_count INTEGER,
    url       TEXT
)`

const createVacanciesTable = `
CREATE TABLE IF NOT EXISTS vacancies (
    vac_id      INTEGER PRIMARY KEY,
    title       TEXT NOT NULL,
    salary_from INTEGER,
    salary_to   INTEGER,
    city        TEXT,
    url         TEXT,
    emp_id      INTEGER REFERENCES employers(emp_id) ON DELETE CASCADE
)`

const insertEmployer = `
INSERT INTO employers (emp_id, name, vac_count, url)
VALUES ($1, $2, $3, $4)
ON CONFLICT (emp_id) DO NOTHING`

const insertVacancy = `
INSERT INTO vacancies (vac_id, title, salary_from, salary_to, city, url, emp_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (vac_id) DO NOTHING`

const selectCompaniesAndVacanciesCount = `
SELECT e.name, COUNT(v.vac_id) AS vacancy_count
FROM employers e
LEFT JOIN vacancies v USING (emp_id)
GROUP BY e.name
ORDER BY vacancy_count, e.name`

const vacancyProjection = `
SELECT e.name, v.title, v.salary_from, v.salary_to, COALESCE(v.url, '')
FROM vacancies v
JOIN employers e USING (emp_id)`

const selectAllVacancies = vacancyProjection + `
ORDER BY e.name, v.title`

// the representative salary is the midpoint of both bounds, or the single bound present
const selectAverageSalary = `
SELECT COALESCE(AVG(
    CASE
        -- 2.0 keeps the fraction: (100, 201) counts as 150.5, not 150
        WHEN salary_from IS NOT NULL AND salary_to IS NOT NULL THEN (salary_from + salary_to) / 2.0
        WHEN salary_from IS NOT NULL THEN salary_from
        WHEN salary_to IS NOT NULL THEN salary_to
    END
), 0)::float8
FROM vacancies`

const selectVacanciesWithHigherSalary = vacancyProjection + `
WHERE v.salary_from > $1::float8 OR v.salary_to > $1::float8
ORDER BY v.salary_from DESC NULLS LAST, v.salary_to DESC NULLS LAST`

const deleteEmployer = `DELETE FROM employers WHERE emp_id = $1`
